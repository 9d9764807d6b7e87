// Package visitor provides the site visitor metric behind one pluggable
// provider interface.
package visitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	ProviderEstimate = "estimate"
	ProviderLocal    = "local"
	ProviderCountAPI = "countapi"
)

// Provider returns the current visitor count.
type Provider interface {
	Name() string
	Count(ctx context.Context) (int, error)
}

// Deps are the collaborators a provider may need.
type Deps struct {
	Estimate EstimateConfig
	Store    Store // local counter and cross-run estimate cache; may be nil
	URL      string
}

// NewProvider creates the provider named by name.
func NewProvider(name string, deps Deps) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderEstimate:
		return NewEstimator(deps.Estimate, deps.Store), nil
	case ProviderLocal:
		if deps.Store == nil {
			return nil, fmt.Errorf("%s provider needs a store", ProviderLocal)
		}
		return NewLocalCounter(deps.Store, defaultCounterKey), nil
	case ProviderCountAPI:
		return NewCountAPI(deps.URL)
	default:
		return nil, fmt.Errorf("unsupported visitor provider: %s", name)
	}
}

// FormatCount renders n with comma thousands separators.
func FormatCount(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
