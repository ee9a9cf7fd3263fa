package social

import "time"

// Pacer spaces out paginated provider reads. Tick counts one collected item
// and pauses for Delay after every Every items, so a walk over K items
// pauses exactly K/Every times.
type Pacer struct {
	Every int
	Delay time.Duration

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)

	count int
}

func (p *Pacer) Tick() {
	if p.Every <= 0 {
		return
	}
	p.count++
	if p.count%p.Every != 0 {
		return
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(p.Delay)
}
