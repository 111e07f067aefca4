// Package jitter добавляет случайность к интервалам повторных попыток,
// чтобы клиенты не переподключались одновременно.
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter: надбавка до 50% к интервалу.
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает d со случайной надбавкой в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	f := globalRand.Float64()
	randMutex.Unlock()

	return d + time.Duration(f*jitterFactor*float64(d))
}

// ExponentialBackoff удваивает base attempt раз, не превышая max, и добавляет джиттер.
// attempt считается с нуля.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt && backoff < max; i++ {
		backoff *= 2
	}

	return Duration(min(backoff, max), jitterFactor)
}

// Backoff считает попытки переподключения. Не потокобезопасен.
type Backoff struct {
	Base    time.Duration
	Max     time.Duration
	Factor  float64
	attempt int
}

func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max, Factor: DefaultJitter}
}

// Next возвращает паузу перед очередной попыткой.
func (b *Backoff) Next() time.Duration {
	d := ExponentialBackoff(b.Base, b.Max, b.attempt, b.Factor)
	b.attempt++
	return d
}

// Reset сбрасывает счётчик после успешного подключения.
func (b *Backoff) Reset() {
	b.attempt = 0
}

func (b *Backoff) Attempt() int {
	return b.attempt
}
