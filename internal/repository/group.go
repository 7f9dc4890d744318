package repository

import (
	"context"
	"errors"

	"github.com/cradoe/splitsy/internal/models"
	"github.com/shopspring/decimal"
)

type GroupRepository interface {
	CreateWithOwner(group *models.Group) (*models.Group, error)
	GetOne(id string) (*models.Group, bool, error)
	GetAllByUserId(userID string) ([]models.GroupSummary, error)
	GetMember(groupID, userID string) (*models.GroupMember, bool, error)
	GetMembers(groupID string) ([]models.GroupMember, error)
	AddMember(member *models.GroupMember) error
	UpdateMember(groupID, userID, role string, spendCap decimal.NullDecimal) error
	RemoveMember(groupID, userID string) error
}

const (
	GroupRoleOwner  = "owner"
	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"
)

// ErrOwnerMembershipImmutable is returned when a write would change or remove the owner row.
var ErrOwnerMembershipImmutable = errors.New("owner membership cannot be changed")

type GroupRepositoryImpl struct {
	db DBTX
}

func NewGroupRepository(db DBTX) GroupRepository {
	return &GroupRepositoryImpl{db: db}
}

// CreateWithOwner inserts the group and the owner's membership in one transaction.
func (repo *GroupRepositoryImpl) CreateWithOwner(group *models.Group) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var created models.Group

	query := `
		INSERT INTO groups (owner_id, name, currency)
		VALUES ($1, $2, $3)
		RETURNING *`

	err = tx.GetContext(ctx, &created, query, group.OwnerID, group.Name, group.Currency)
	if err != nil {
		return nil, err
	}

	memberQuery := `
		INSERT INTO group_members (group_id, user_id, role)
		VALUES ($1, $2, $3)`

	_, err = tx.ExecContext(ctx, memberQuery, created.ID, created.OwnerID, GroupRoleOwner)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &created, nil
}

func (repo *GroupRepositoryImpl) GetOne(id string) (*models.Group, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var group models.Group

	query := `SELECT * FROM groups WHERE id = $1`

	err := repo.db.GetContext(ctx, &group, query, id)
	if notFound(err) {
		return nil, false, nil
	}

	return &group, true, err
}

func (repo *GroupRepositoryImpl) GetAllByUserId(userID string) ([]models.GroupSummary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	groups := []models.GroupSummary{}

	query := `
		SELECT g.*, gm.role
		FROM groups g
		INNER JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC`

	err := repo.db.SelectContext(ctx, &groups, query, userID)
	return groups, err
}

const memberColumns = `
	gm.group_id, gm.user_id, gm.role, gm.spend_cap, gm.created_at, u.name, u.email`

func (repo *GroupRepositoryImpl) GetMember(groupID, userID string) (*models.GroupMember, bool, error) {
	if !validID(groupID, userID) {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var member models.GroupMember

	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		INNER JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1 AND gm.user_id = $2`

	err := repo.db.GetContext(ctx, &member, query, groupID, userID)
	if notFound(err) {
		return nil, false, nil
	}

	return &member, true, err
}

func (repo *GroupRepositoryImpl) GetMembers(groupID string) ([]models.GroupMember, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	members := []models.GroupMember{}

	query := `
		SELECT ` + memberColumns + `
		FROM group_members gm
		INNER JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.created_at`

	err := repo.db.SelectContext(ctx, &members, query, groupID)
	return members, err
}

func (repo *GroupRepositoryImpl) AddMember(member *models.GroupMember) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO group_members (group_id, user_id, role, spend_cap)
		VALUES ($1, $2, $3, $4)`

	_, err := repo.db.ExecContext(ctx, query, member.GroupID, member.UserID, member.Role, member.SpendCap)
	return err
}

// UpdateMember never touches the owner's row; ErrOwnerMembershipImmutable is
// returned when nothing was updated because the target is the owner.
func (repo *GroupRepositoryImpl) UpdateMember(groupID, userID, role string, spendCap decimal.NullDecimal) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE group_members SET role = $1, spend_cap = $2
		WHERE group_id = $3 AND user_id = $4 AND role <> $5`

	res, err := repo.db.ExecContext(ctx, query, role, spendCap, groupID, userID, GroupRoleOwner)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOwnerMembershipImmutable
	}
	return nil
}

func (repo *GroupRepositoryImpl) RemoveMember(groupID, userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		DELETE FROM group_members
		WHERE group_id = $1 AND user_id = $2 AND role <> $3`

	res, err := repo.db.ExecContext(ctx, query, groupID, userID, GroupRoleOwner)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOwnerMembershipImmutable
	}
	return nil
}
