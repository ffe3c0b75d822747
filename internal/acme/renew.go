package acme

import "time"

// StartRenewalScanner runs every renewalInterval, checking every
// tracked certificate and re-obtaining any within renewalWindow of
// NotAfter. It returns a stop function; call it from shutdown.
func (c *Client) StartRenewalScanner() (stop func()) {
	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(renewalInterval)
		defer ticker.Stop()

		c.scanOnce()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				c.scanOnce()
			}
		}
	}()

	return func() { close(stopCh) }
}

func (c *Client) scanOnce() {
	for _, cert := range c.store.Certificates() {
		if cert.NotAfter.IsZero() {
			continue
		}
		if time.Until(cert.NotAfter) > renewalWindow {
			continue
		}

		if c.log != nil {
			c.log.WithField("hostname", cert.Hostname).Info("certificate nearing expiry, renewing")
		}
		if err := c.Renew(cert.Hostname); err != nil && c.log != nil {
			c.log.WithField("hostname", cert.Hostname).WithError(err).Error("renewal failed")
		}
	}
}
