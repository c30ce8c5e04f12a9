// Package sessionpool keeps a small number of authenticated SecureChannel
// sessions warm against one HSM connector, rotating sessions out before
// they approach their message-counter ceiling. It generalizes the
// keep-N-warm session manager the teacher carried at its module root.
package sessionpool

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/hsmgo/yubihsm-go/authkey"
	"github.com/hsmgo/yubihsm-go/connector"
	"github.com/hsmgo/yubihsm-go/securechannel"
)

// rotateThreshold is the fraction of securechannel.DefaultMaxCounter at
// which a session is proactively retired and replaced, rather than run to
// its hard limit and fail mid-command.
const rotateThreshold = 0.9

// MaxPoolSize caps how many sessions a Pool will keep warm at once: the
// teacher's manager.go enforced the same ceiling against its hardware's
// concurrent-session limit.
const MaxPoolSize = 16

var ErrNoSessionsAvailable = errors.New("sessionpool: no authenticated sessions available")

// Pool holds poolSize authenticated sessions against one transport and
// authentication key, replacing any that approach their counter ceiling.
type Pool struct {
	transport   connector.Transport
	authKeySlot uint16
	staticKeys  authkey.StaticKeys
	poolSize    uint
	logger      *slog.Logger

	mu       sync.Mutex
	sessions []*securechannel.SecureChannel

	cancel context.CancelFunc
}

// New builds a Pool and performs its first fill synchronously, so New
// returns only once every session it started has either authenticated or
// failed. Sessions that fail to authenticate are logged, not returned as an
// error: New can succeed with fewer than poolSize sessions, even none. A
// background goroutine then re-fills and rotates every 5 seconds until
// Close is called. The only error New returns is for a poolSize above
// MaxPoolSize.
func New(transport connector.Transport, authKeySlot uint16, staticKeys authkey.StaticKeys, poolSize uint, logger *slog.Logger) (*Pool, error) {
	if poolSize > MaxPoolSize {
		return nil, errors.New("sessionpool: pool size exceeds session limit")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		transport:   transport,
		authKeySlot: authKeySlot,
		staticKeys:  staticKeys,
		poolSize:    poolSize,
		logger:      logger,
		cancel:      cancel,
	}

	p.household()

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.household()
			}
		}
	}()

	return p, nil
}

// household retires sessions near their counter ceiling and tops the pool
// back up to poolSize, waiting for any new sessions it starts to finish
// authenticating before returning.
func (p *Pool) household() {
	var wg sync.WaitGroup

	p.mu.Lock()
	kept := p.sessions[:0]
	for _, session := range p.sessions {
		if float64(session.Counter()) > float64(securechannel.DefaultMaxCounter)*rotateThreshold {
			p.logger.Info("sessionpool: rotating session near its counter ceiling", "session_id", session.ID())
			go session.Close()
			continue
		}
		kept = append(kept, session)
	}
	p.sessions = kept
	need := int(p.poolSize) - len(p.sessions)
	p.mu.Unlock()

	for i := 0; i < need; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := p.authenticate()
			if err != nil {
				p.logger.Warn("sessionpool: failed to establish session", "error", err)
				return
			}
			p.mu.Lock()
			p.sessions = append(p.sessions, session)
			p.mu.Unlock()
			p.logger.Info("sessionpool: session established", "session_id", session.ID())
		}()
	}
	wg.Wait()
}

func (p *Pool) authenticate() (*securechannel.SecureChannel, error) {
	session, err := securechannel.NewSecureChannel(p.transport, p.authKeySlot, p.staticKeys)
	if err != nil {
		return nil, err
	}
	if err := session.Authenticate(); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns a random authenticated session from the pool. Sessions are
// shared, not leased — callers that issue concurrent commands on the same
// session must serialize through SecureChannel's own locking, which is
// correct but will serialize their throughput; request a larger pool if
// that matters.
func (p *Pool) Get() (*securechannel.SecureChannel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil, ErrNoSessionsAvailable
	}
	return p.sessions[rand.Intn(len(p.sessions))], nil
}

// Close stops the background rotation goroutine and closes every pooled
// session.
func (p *Pool) Close() {
	p.cancel()

	p.mu.Lock()
	sessions := p.sessions
	p.sessions = nil
	p.mu.Unlock()

	for _, session := range sessions {
		_ = session.Close()
	}
}
