package screen

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dynamite/charlyhot-pos/internal/domain/auth"
	"github.com/dynamite/charlyhot-pos/internal/resource"
)

// Login form messages.
const (
	MissingCredentialsMessage = "Ingrese correo y contraseña"
	InvalidCredentialsMessage = "Correo o contraseña incorrectos"
)

// SessionStarter authenticates staff.
type SessionStarter interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// LoginState is the state of the login form. Session is meaningless while
// Idle is true.
type LoginState struct {
	Idle    bool
	Session resource.Resource[auth.Session]
}

// LoginViewModel drives the login form.
type LoginViewModel struct {
	scope    *Scope
	sessions SessionStarter
	observer Observer[LoginState]

	mu    sync.Mutex
	state LoginState
	gen   uint64
}

// NewLoginViewModel returns an idle login form.
func NewLoginViewModel(ctx context.Context, sessions SessionStarter, observer Observer[LoginState]) *LoginViewModel {
	return &LoginViewModel{
		scope:    NewScope(ctx),
		sessions: sessions,
		observer: observer,
		state:    LoginState{Idle: true},
	}
}

// State returns the current state.
func (vm *LoginViewModel) State() LoginState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Login submits the credentials. Blank input fails immediately.
func (vm *LoginViewModel) Login(email, password string) {
	if strings.TrimSpace(email) == "" || password == "" {
		vm.scope.Apply(func() {
			vm.mu.Lock()
			vm.gen++
			vm.mu.Unlock()
			vm.set(0, false, resource.Error[auth.Session](MissingCredentialsMessage))
		})
		return
	}

	var gen uint64
	ok := vm.scope.Apply(func() {
		vm.mu.Lock()
		vm.gen++
		gen = vm.gen
		vm.mu.Unlock()
		vm.set(gen, false, resource.Loading[auth.Session]())
	})
	if !ok {
		return
	}

	vm.scope.Launch(func(ctx context.Context) {
		sess, err := vm.sessions.Login(ctx, email, password)
		var r resource.Resource[auth.Session]
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			r = resource.Error[auth.Session](InvalidCredentialsMessage)
		case err != nil:
			zctx.From(ctx).Debug("Login failed", zap.Error(err))
			r = resource.Error[auth.Session](err.Error())
		default:
			r = resource.Success(*sess)
		}
		vm.scope.Apply(func() { vm.set(gen, true, r) })
	})
}

// Close cancels a pending login.
func (vm *LoginViewModel) Close() { vm.scope.Close() }

// set replaces the session resource. When check is true the update is
// dropped unless gen is still the latest submission.
func (vm *LoginViewModel) set(gen uint64, check bool, r resource.Resource[auth.Session]) {
	vm.mu.Lock()
	if check && gen != vm.gen {
		vm.mu.Unlock()
		return
	}
	vm.state = LoginState{Session: r}
	s := vm.state
	vm.mu.Unlock()

	if vm.observer != nil {
		vm.observer(s)
	}
}
