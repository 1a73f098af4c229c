package app

import (
	"reflect"

	"github.com/iov-one/vault"
)

// Decorators is an ordered list of decorators that is not yet terminated
// by a handler. The first decorator is the outermost one.
type Decorators struct {
	chain []vault.Decorator
}

// ChainDecorators returns a list of the given decorators. Nil values are
// dropped so that optional decorators can be passed unconditionally.
//
//	app.ChainDecorators(
//	  utils.NewLogging(),
//	  utils.NewRecovery(),
//	  sigs.NewDecorator(),
//	  utils.NewSavepoint().OnDeliver(),
//	).WithHandler(router)
func ChainDecorators(chain ...vault.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain returns a new list with given decorators appended. The receiver is
// not modified.
func (d Decorators) Chain(chain ...vault.Decorator) Decorators {
	out := make([]vault.Decorator, 0, len(d.chain)+len(chain))
	out = append(out, d.chain...)
	for _, dc := range chain {
		if !isNil(dc) {
			out = append(out, dc)
		}
	}
	return Decorators{chain: out}
}

func isNil(dc vault.Decorator) bool {
	if dc == nil {
		return true
	}
	v := reflect.ValueOf(dc)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler terminates the list with given handler. Each call passes
// through all decorators in order before it reaches the handler.
func (d Decorators) WithHandler(h vault.Handler) vault.Handler {
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = link{d: d.chain[i], next: h}
	}
	return h
}

// link binds a decorator to the handler it wraps.
type link struct {
	d    vault.Decorator
	next vault.Handler
}

var _ vault.Handler = link{}

func (l link) Check(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.CheckResult, error) {
	return l.d.Check(ctx, db, tx, l.next)
}

func (l link) Deliver(ctx vault.Context, db vault.KVStore, tx vault.Tx) (*vault.DeliverResult, error) {
	return l.d.Deliver(ctx, db, tx, l.next)
}
