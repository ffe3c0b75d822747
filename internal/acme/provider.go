package acme

import "github.com/ridgehq/ridge/internal/challenge"

// responderProvider adapts our challenge.Responder to lego's
// challenge.Provider interface (Present/CleanUp), so the ACME client
// publishes tokens directly into the same table the plaintext listener
// serves them from instead of running a second embedded HTTP server,
// which is what lego's built-in http01.ProviderServer would do.
type responderProvider struct {
	responder *challenge.Responder
}

func (p *responderProvider) Present(domain, token, keyAuth string) error {
	p.responder.Publish(token, keyAuth)
	return nil
}

func (p *responderProvider) CleanUp(domain, token, keyAuth string) error {
	p.responder.Unpublish(token)
	return nil
}
