package project_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/taskforge-io/taskforge/auth"
	"github.com/taskforge-io/taskforge/project"
)

type fakeMembers struct {
	roles   map[string]auth.Role
	removed []string
}

func key(projectID, userID uuid.UUID) string {
	return projectID.String() + ":" + userID.String()
}

func notFound() error {
	return goerrors.New("record not found", goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

func (f *fakeMembers) FindRole(_ context.Context, projectID, userID uuid.UUID) (auth.Role, error) {
	if role, ok := f.roles[key(projectID, userID)]; ok {
		return role, nil
	}
	return "", notFound()
}

func (f *fakeMembers) List(_ context.Context, _ uuid.UUID) ([]*project.Member, error) {
	return nil, nil
}

func (f *fakeMembers) Upsert(_ context.Context, projectID, userID uuid.UUID, role auth.Role) (*project.Member, error) {
	f.roles[key(projectID, userID)] = role
	return &project.Member{
		ID:        uuid.New(),
		UserID:    userID,
		ProjectID: projectID,
		Role:      role,
	}, nil
}

func (f *fakeMembers) UpsertTx(ctx context.Context, _ bun.IDB, projectID, userID uuid.UUID, role auth.Role) (*project.Member, error) {
	return f.Upsert(ctx, projectID, userID, role)
}

func (f *fakeMembers) UpdateRole(_ context.Context, projectID, userID uuid.UUID, role auth.Role) error {
	k := key(projectID, userID)
	if _, ok := f.roles[k]; !ok {
		return notFound()
	}
	f.roles[k] = role
	return nil
}

func (f *fakeMembers) Remove(_ context.Context, projectID, userID uuid.UUID) error {
	k := key(projectID, userID)
	delete(f.roles, k)
	f.removed = append(f.removed, k)
	return nil
}

type fakeUsers struct {
	byEmail map[string]*auth.User
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, notFound()
}

func (f *fakeUsers) FindByID(context.Context, uuid.UUID) (*auth.User, error) { return nil, notFound() }
func (f *fakeUsers) ExistsByEmailOrUsername(context.Context, string, string) (bool, error) {
	return false, nil
}
func (f *fakeUsers) Register(_ context.Context, u *auth.User) (*auth.User, error) { return u, nil }
func (f *fakeUsers) FindByVerificationToken(context.Context, string, time.Time) (*auth.User, error) {
	return nil, notFound()
}
func (f *fakeUsers) FindByResetToken(context.Context, string, time.Time) (*auth.User, error) {
	return nil, notFound()
}
func (f *fakeUsers) StoreVerificationToken(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}
func (f *fakeUsers) StoreResetToken(context.Context, uuid.UUID, string, time.Time) error { return nil }
func (f *fakeUsers) MarkEmailVerified(context.Context, uuid.UUID) error                  { return nil }
func (f *fakeUsers) UpdatePassword(context.Context, uuid.UUID, string, bool) error       { return nil }
func (f *fakeUsers) StoreRefreshToken(context.Context, uuid.UUID, string) error          { return nil }
func (f *fakeUsers) RotateRefreshToken(context.Context, uuid.UUID, string, string) (bool, error) {
	return false, nil
}
func (f *fakeUsers) ClearRefreshToken(context.Context, uuid.UUID) error { return nil }

func newMembershipService(users *fakeUsers, members *fakeMembers) *project.Service {
	return project.NewService(nil, nil, members, users)
}

func TestAddMemberByEmail(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Email: "pepe@example.com", Username: "pepe"}
	members := &fakeMembers{roles: map[string]auth.Role{}}
	svc := newMembershipService(&fakeUsers{byEmail: map[string]*auth.User{user.Email: user}}, members)

	projectID := uuid.New()
	record, err := svc.AddMember(context.Background(), projectID, "pepe@example.com", auth.RoleMember)
	require.NoError(t, err)

	assert.Equal(t, user.ID, record.UserID)
	assert.Equal(t, auth.RoleMember, members.roles[key(projectID, user.ID)])
}

func TestAddMemberUnknownUser(t *testing.T) {
	svc := newMembershipService(&fakeUsers{byEmail: map[string]*auth.User{}},
		&fakeMembers{roles: map[string]auth.Role{}})

	_, err := svc.AddMember(context.Background(), uuid.New(), "nobody@example.com", auth.RoleMember)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CodeNotFound, richErr.Code)
}

func TestAddMemberInvalidRole(t *testing.T) {
	svc := newMembershipService(&fakeUsers{byEmail: map[string]*auth.User{}},
		&fakeMembers{roles: map[string]auth.Role{}})

	_, err := svc.AddMember(context.Background(), uuid.New(), "pepe@example.com", auth.Role("owner"))
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CodeBadRequest, richErr.Code)
}

func TestUpdateMemberRole(t *testing.T) {
	userID, projectID := uuid.New(), uuid.New()
	members := &fakeMembers{roles: map[string]auth.Role{key(projectID, userID): auth.RoleMember}}
	svc := newMembershipService(&fakeUsers{}, members)

	require.NoError(t, svc.UpdateMemberRole(context.Background(), projectID, userID, auth.RoleAdmin))
	assert.Equal(t, auth.RoleAdmin, members.roles[key(projectID, userID)])

	err := svc.UpdateMemberRole(context.Background(), projectID, uuid.New(), auth.RoleAdmin)
	require.Error(t, err, "unknown membership")

	err = svc.UpdateMemberRole(context.Background(), projectID, userID, auth.Role("owner"))
	require.Error(t, err, "unknown role")
}

func TestRemoveMember(t *testing.T) {
	userID, projectID := uuid.New(), uuid.New()
	members := &fakeMembers{roles: map[string]auth.Role{key(projectID, userID): auth.RoleMember}}
	svc := newMembershipService(&fakeUsers{}, members)

	require.NoError(t, svc.RemoveMember(context.Background(), projectID, userID))
	assert.Empty(t, members.roles)

	// Removing an absent member is not an error.
	require.NoError(t, svc.RemoveMember(context.Background(), projectID, userID))
}
