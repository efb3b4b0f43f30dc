package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"resumeforge/internal/config"
)

// configureTLS sets up TLS on httpServer based on the mode
func (s *Server) configureTLS(httpServer *http.Server) error {
	tlsCfg := s.Config.TLS

	switch tlsCfg.Mode {
	case "", "disabled":
		fmt.Printf("Starting server on http://%s\n", httpServer.Addr)
		fmt.Println("TLS mode: Disabled (HTTP only)")
		return nil
	case "server":
		fmt.Printf("Starting server with HTTPS (server-only TLS) on https://%s\n", httpServer.Addr)
	case "mutual":
		fmt.Printf("Starting server with mTLS (mutual TLS) on https://%s\n", httpServer.Addr)
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tlsCfg.Mode)
	}

	if tlsCfg.AutoReload && tlsCfg.CertFile != "" && tlsCfg.KeyFile != "" && tlsCfg.CertContent == "" {
		reloader, err := NewCertReloader(tlsCfg.CertFile, tlsCfg.KeyFile, s.logger)
		if err != nil {
			return err
		}
		if err := reloader.Watch(0); err != nil {
			return fmt.Errorf("failed to watch certificate files: %w", err)
		}
		s.Certificates = reloader
		fmt.Println("TLS auto-reload: ENABLED")
	}

	tlsConfig, err := buildTLSConfig(tlsCfg, s.Certificates)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	httpServer.TLSConfig = tlsConfig
	return nil
}

// buildTLSConfig creates the TLS configuration. When reloader is non-nil it
// supplies the server certificate.
func buildTLSConfig(tlsCfg config.TLSConfig, reloader *CertReloader) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tlsVersion(tlsCfg.MinVersion),
	}

	if reloader != nil {
		tlsConfig.GetCertificate = reloader.GetCertificate
	} else {
		cert, err := loadServerCertificate(tlsCfg)
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if tlsCfg.Mode != "mutual" {
		tlsConfig.ClientAuth = tls.NoClientCert
		return tlsConfig, nil
	}

	pool, err := loadCACertificatePool(tlsCfg)
	if err != nil {
		return nil, err
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = clientAuthPolicy(tlsCfg.ClientAuthPolicy)
	return tlsConfig, nil
}

// loadServerCertificate loads the server certificate from content or files
func loadServerCertificate(tlsCfg config.TLSConfig) (tls.Certificate, error) {
	if tlsCfg.CertContent != "" && tlsCfg.KeyContent != "" {
		// Content wins; it is how Vault delivers certificates
		cert, err := tls.X509KeyPair([]byte(tlsCfg.CertContent), []byte(tlsCfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if tlsCfg.CertFile != "" && tlsCfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(tlsCfg.CertFile, tlsCfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

// loadCACertificatePool loads the CA pool used to verify client certificates
func loadCACertificatePool(tlsCfg config.TLSConfig) (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case tlsCfg.CAContent != "":
		caCert = []byte(tlsCfg.CAContent)
	case tlsCfg.CAFile != "":
		data, err := os.ReadFile(tlsCfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// clientAuthPolicy returns the client authentication policy for mutual TLS
func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
