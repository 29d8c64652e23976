package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/profile"
	"github.com/artem13815/jobboard/pkg/repository/memory"
	"github.com/artem13815/jobboard/pkg/security/jwt"
)

func newAuth(t *testing.T) (auth.AuthUseCase, *memory.Store, *jwt.Manager) {
	t.Helper()
	store := memory.New()
	tokens := jwt.NewManager("secret", "jobboard", time.Hour)
	profiles := profile.NewService(store.Profiles(), nil, 0, zap.NewNop())
	return auth.NewAuthService(store.Actors(), profiles, tokens, zap.NewNop()), store, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store, tokens := newAuth(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, auth.RegisterInput{
		Email: " Boss@Acme.io ", Password: "password1", Role: auth.RoleEmployer, Name: "Boss", Company: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "boss@acme.io", res.Actor.Email)
	assert.NotEqual(t, "password1", res.Actor.PasswordHash)

	id, err := tokens.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Actor.ID, id.ActorID)
	assert.Equal(t, auth.RoleEmployer, id.Role)

	p, err := store.Profiles().Get(ctx, res.Actor.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Employer)
	assert.Equal(t, "Acme", p.Employer.CompanyName)

	login, err := svc.Login(ctx, "BOSS@acme.io", "password1")
	require.NoError(t, err)
	assert.Equal(t, res.Actor.ID, login.Actor.ID)

	_, err = svc.Login(ctx, "boss@acme.io", "wrong-password")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	_, err = svc.Login(ctx, "nobody@acme.io", "password1")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	me, err := svc.Me(ctx, res.Actor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Boss", me.Name)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	valid := auth.RegisterInput{Email: "x@example.com", Password: "password1", Role: auth.RoleApplicant, Name: "X"}

	cases := map[string]func(in *auth.RegisterInput){
		"bad email":            func(in *auth.RegisterInput) { in.Email = "nope" },
		"short password":       func(in *auth.RegisterInput) { in.Password = "short" },
		"unknown role":         func(in *auth.RegisterInput) { in.Role = "admin" },
		"missing name":         func(in *auth.RegisterInput) { in.Name = " " },
		"employer w/o company": func(in *auth.RegisterInput) { in.Role = auth.RoleEmployer },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := svc.Register(ctx, in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuth(t)
	ctx := context.Background()
	in := auth.RegisterInput{Email: "x@example.com", Password: "password1", Role: auth.RoleApplicant, Name: "X"}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)
	in.Email = "X@Example.com"
	_, err = svc.Register(ctx, in)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

// flakyProfiles fails the first Init call and delegates afterwards.
type flakyProfiles struct {
	next   auth.ProfileInitializer
	failed bool
}

func (f *flakyProfiles) Init(ctx context.Context, actor auth.Actor, company string) error {
	if !f.failed {
		f.failed = true
		return apperr.Internal("create profile", errors.New("connection reset"))
	}
	return f.next.Init(ctx, actor, company)
}

func TestRegister_ProfileInitFailureCanBeRetried(t *testing.T) {
	store := memory.New()
	tokens := jwt.NewManager("secret", "jobboard", time.Hour)
	profiles := &flakyProfiles{next: profile.NewService(store.Profiles(), nil, 0, zap.NewNop())}
	svc := auth.NewAuthService(store.Actors(), profiles, tokens, zap.NewNop())
	ctx := context.Background()
	in := auth.RegisterInput{Email: "retry@example.com", Password: "password1", Role: auth.RoleApplicant, Name: "R"}

	_, err := svc.Register(ctx, in)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	_, err = store.Actors().GetByEmail(ctx, "retry@example.com")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "failed registration must not leave an actor behind")

	res, err := svc.Register(ctx, in)
	require.NoError(t, err)
	p, err := store.Profiles().Get(ctx, res.Actor.ID)
	require.NoError(t, err)
	assert.NotNil(t, p.Applicant)

	_, err = svc.Login(ctx, "retry@example.com", "password1")
	assert.NoError(t, err)
}

func TestMe_Unknown(t *testing.T) {
	svc, _, _ := newAuth(t)
	_, err := svc.Me(context.Background(), uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestParseRole(t *testing.T) {
	r, err := auth.ParseRole(" Employer ")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleEmployer, r)

	_, err = auth.ParseRole("admin")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
