package metrics

import "time"

// SemaphoreSource is the minimal view of the memory semaphore the
// collector needs; pkg/semaphore.Semaphore satisfies it.
type SemaphoreSource interface {
	Available() uint64
	Waiters() int
}

// RegistrySource is the minimal view of the plugin registry the
// collector needs; pkg/langs.Registry satisfies it.
type RegistrySource interface {
	Len() int
}

// Collector periodically samples the semaphore and plugin registry
// into the package-level gauges, since both are plain in-process
// structures with no event bus of their own.
type Collector struct {
	semaphore SemaphoreSource
	registry  RegistrySource
	stopCh    chan struct{}
}

// NewCollector creates a metrics collector over sem and reg.
func NewCollector(sem SemaphoreSource, reg RegistrySource) *Collector {
	return &Collector{
		semaphore: sem,
		registry:  reg,
		stopCh:    make(chan struct{}),
	}
}

// Start begins collecting metrics every interval until Stop is called.
func (c *Collector) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.semaphore != nil {
		SemaphoreAvailableBytes.Set(float64(c.semaphore.Available()))
		SemaphoreWaitersTotal.Set(float64(c.semaphore.Waiters()))
	}
	if c.registry != nil {
		PluginsLoadedTotal.Set(float64(c.registry.Len()))
	}
}
