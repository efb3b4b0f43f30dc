package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"sync"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
)

// CertReloader serves the current server certificate and swaps it in place
// when the certificate or key file changes on disk
type CertReloader struct {
	mu       sync.RWMutex
	cert     *tls.Certificate
	notAfter time.Time

	certFile string
	keyFile  string
	watcher  *config.FileWatcher
	logger   *errors.Logger

	reloads        int64
	reloadFailures int64
	lastReload     time.Time
	lastError      string
}

// NewCertReloader loads the key pair from files once. Call Watch to follow
// changes.
func NewCertReloader(certFile, keyFile string, logger *errors.Logger) (*CertReloader, error) {
	cr := &CertReloader{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := cr.Reload(); err != nil {
		return nil, err
	}
	return cr, nil
}

// Reload reads the key pair again. On failure the previous certificate
// stays in use.
func (cr *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certFile, cr.keyFile)
	if err == nil {
		err = parseLeaf(&cert)
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.lastReload = time.Now()
	if err != nil {
		cr.reloadFailures++
		cr.lastError = err.Error()
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to load TLS certificate", err).
			WithContext("cert_file", cr.certFile)
	}
	cr.cert = &cert
	cr.notAfter = cert.Leaf.NotAfter
	cr.reloads++
	cr.lastError = ""
	return nil
}

func parseLeaf(cert *tls.Certificate) error {
	if cert.Leaf != nil {
		return nil
	}
	if len(cert.Certificate) == 0 {
		return fmt.Errorf("certificate chain is empty")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return err
	}
	cert.Leaf = leaf
	return nil
}

// Watch starts reloading on file changes
func (cr *CertReloader) Watch(debounce time.Duration) error {
	watcher := config.NewFileWatcher([]string{cr.certFile, cr.keyFile}, debounce, func() {
		if err := cr.Reload(); err != nil {
			cr.logger.LogError(err, "TLS certificate reload failed")
			return
		}
		cr.logger.Info("TLS certificates reloaded", "not_after", cr.NotAfter())
	}, cr.logger)
	if err := watcher.Start(); err != nil {
		return err
	}
	cr.mu.Lock()
	cr.watcher = watcher
	cr.mu.Unlock()
	return nil
}

// Stop stops watching the files
func (cr *CertReloader) Stop() error {
	cr.mu.RLock()
	watcher := cr.watcher
	cr.mu.RUnlock()
	if watcher == nil {
		return nil
	}
	return watcher.Stop()
}

// GetCertificate implements tls.Config.GetCertificate
func (cr *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.cert, nil
}

// NotAfter returns the expiry of the current certificate
func (cr *CertReloader) NotAfter() time.Time {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.notAfter
}

// TimeToExpiry returns how long the current certificate stays valid
func (cr *CertReloader) TimeToExpiry() (time.Duration, error) {
	notAfter := cr.NotAfter()
	if notAfter.IsZero() {
		return 0, fmt.Errorf("no certificate loaded")
	}
	return time.Until(notAfter), nil
}

// Stats returns reload counters
func (cr *CertReloader) Stats() map[string]any {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return map[string]any{
		"watching":         cr.watcher != nil,
		"reload_count":     cr.reloads,
		"reload_failures":  cr.reloadFailures,
		"last_reload_time": cr.lastReload,
		"last_error":       cr.lastError,
	}
}
