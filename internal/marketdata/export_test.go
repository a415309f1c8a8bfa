package marketdata

// QueueLen returns the number of requests waiting for the worker.
func (c *Cache) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
