package security

import (
	"time"

	"github.com/sentinelid/authcore/internal/core/ports"
)

// SystemClock implements ports.Clock on time.Now.
type SystemClock struct{}

func NewSystemClock() *SystemClock { return &SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC() }
func (SystemClock) NowSeconds() int64 { return time.Now().UTC().Unix() }
func (SystemClock) NowMillis() int64 { return time.Now().UTC().UnixMilli() }

var _ ports.Clock = SystemClock{}

// FixedClock is a fixed-clock test double.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
func (c FixedClock) NowSeconds() int64 { return c.At.Unix() }
func (c FixedClock) NowMillis() int64 { return c.At.UnixMilli() }

var _ ports.Clock = FixedClock{}
