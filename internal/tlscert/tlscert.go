// Package tlscert obtains a TLS certificate for the dashboard via the
// ACME HTTP-01 challenge, using go-acme/lego, so the dashboard can serve
// HTTPS directly when a public hostname is configured instead of
// requiring a hand-rolled certificate.
package tlscert

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
)

// acmeUser implements lego's registration.User, backed by a fresh EC key
// generated for each certificate request (this is a short-lived daemon
// process, not a CA client with a persisted account).
type acmeUser struct {
	email        string
	key          *ecdsa.PrivateKey
	registration *registration.Resource
}

func (u *acmeUser) GetEmail() string                        { return u.email }
func (u *acmeUser) GetRegistration() *registration.Resource { return u.registration }
func (u *acmeUser) GetPrivateKey() crypto.PrivateKey        { return u.key }

// ObtainCertificate runs the ACME HTTP-01 challenge flow for domain and
// returns the PEM-encoded certificate chain and private key. challengeAddr
// is where lego's built-in HTTP-01 provider binds its challenge responder
// (typically ":80", which must be reachable from the ACME server as
// http://domain/.well-known/acme-challenge/...).
func ObtainCertificate(ctx context.Context, domain, email, challengeAddr string) (certPEM, keyPEM []byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("tlscert: generate account key: %w", err)
	}

	user := &acmeUser{email: email, key: key}

	cfg := lego.NewConfig(user)
	cfg.CADirURL = lego.LEDirectoryProduction

	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("tlscert: new client: %w", err)
	}

	provider := http01.NewProviderServer("", challengeAddr)
	if err := client.Challenge.SetHTTP01Provider(provider); err != nil {
		return nil, nil, fmt.Errorf("tlscert: set http-01 provider: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, nil, fmt.Errorf("tlscert: register account: %w", err)
	}
	user.registration = reg

	request := certificate.ObtainRequest{
		Domains: []string{domain},
		Bundle:  true,
	}
	certs, err := client.Certificate.Obtain(request)
	if err != nil {
		return nil, nil, fmt.Errorf("tlscert: obtain certificate for %s: %w", domain, err)
	}

	return certs.Certificate, certs.PrivateKey, nil
}
