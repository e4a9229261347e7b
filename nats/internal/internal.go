// Package internal holds the connection options shared by the NATS client and worker.
package internal

import "github.com/nats-io/nats.go"

// Options describes how to dial the NATS server.  It is unmarshalled from configuration alongside the client and
// worker options.
type Options struct {
	// URL specifies the NATS server URL, defaults to nats://localhost:4222.
	URL string `cfg:"nats_url"`

	// ClientName identifies the connection in NATS server logs.
	ClientName string `cfg:"nats_client_name"`

	// NKeyFile provides the path to an nkey seed file used to authenticate with the NATS server.
	NKeyFile string `cfg:"nats_nk"`

	// CA provides the path to a file of trusted certificates for verifying the NATS server.  If not provided, the
	// host certificate authorities are used.
	CA string `cfg:"nats_ca"`
}

// Defaults returns the options used when nothing is configured.
func Defaults(clientName string) Options {
	return Options{
		URL:        nats.DefaultURL,
		ClientName: clientName,
	}
}

// Dial connects to the NATS server using the options provided.
func (opts *Options) Dial(more ...nats.Option) (*nats.Conn, error) {
	options := make([]nats.Option, 0, 4+len(more))
	if opts.NKeyFile != `` {
		opt, err := nats.NkeyOptionFromSeed(opts.NKeyFile)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	if opts.CA != `` {
		options = append(options, nats.RootCAs(opts.CA))
	}
	if opts.ClientName != `` {
		options = append(options, nats.Name(opts.ClientName))
	}
	options = append(options, more...)
	return nats.Connect(opts.URL, options...)
}
