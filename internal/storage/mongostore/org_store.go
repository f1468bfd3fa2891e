package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskhub/taskhub/internal/core/domain"
)

type organisationDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"createdAt"`
	CreatedBy string    `bson:"createdBy"`
}

func toOrganisationDoc(o *domain.Organisation) organisationDoc {
	return organisationDoc{
		ID:        o.ID.String(),
		Name:      o.Name,
		CreatedAt: o.CreatedAt,
		CreatedBy: o.CreatedBy.String(),
	}
}

func (d organisationDoc) toDomain() (*domain.Organisation, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse organisation id %q: %w", d.ID, err)
	}
	createdBy, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("parse organisation creator %q: %w", d.CreatedBy, err)
	}
	return &domain.Organisation{
		ID:        id,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		CreatedBy: createdBy,
	}, nil
}

type membershipDoc struct {
	ID             string    `bson:"_id"` // userID:orgID
	UserID         string    `bson:"userId"`
	OrganisationID string    `bson:"organisationId"`
	Role           string    `bson:"role"`
	JoinedAt       time.Time `bson:"joinedAt"`
}

func toMembershipDoc(m *domain.Membership) membershipDoc {
	return membershipDoc{
		ID:             domain.MembershipKey(m.UserID, m.OrganisationID),
		UserID:         m.UserID.String(),
		OrganisationID: m.OrganisationID.String(),
		Role:           string(m.Role),
		JoinedAt:       m.JoinedAt,
	}
}

func (d membershipDoc) toDomain() (*domain.Membership, error) {
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse membership user id %q: %w", d.UserID, err)
	}
	orgID, err := uuid.Parse(d.OrganisationID)
	if err != nil {
		return nil, fmt.Errorf("parse membership organisation id %q: %w", d.OrganisationID, err)
	}
	return &domain.Membership{
		UserID:         userID,
		OrganisationID: orgID,
		Role:           domain.Role(d.Role),
		JoinedAt:       d.JoinedAt,
	}, nil
}

func (s *Store) GetOrganisationByID(ctx context.Context, id uuid.UUID) (*domain.Organisation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc organisationDoc
	if err := s.organisations.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrganisationNotFound
		}
		return nil, fmt.Errorf("find organisation: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) GetUserOrganisations(ctx context.Context, userID uuid.UUID) ([]*domain.Organisation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.memberships.Find(ctx, bson.M{"userId": userID.String()})
	if err != nil {
		return nil, fmt.Errorf("find memberships: %w", err)
	}
	var memberships []membershipDoc
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, fmt.Errorf("decode memberships: %w", err)
	}
	if len(memberships) == 0 {
		return []*domain.Organisation{}, nil
	}

	orgIDs := make([]string, len(memberships))
	for i, m := range memberships {
		orgIDs[i] = m.OrganisationID
	}

	cur, err = s.organisations.Find(ctx, bson.M{"_id": bson.M{"$in": orgIDs}})
	if err != nil {
		return nil, fmt.Errorf("find organisations: %w", err)
	}
	var docs []organisationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode organisations: %w", err)
	}

	orgs := make([]*domain.Organisation, 0, len(docs))
	for _, d := range docs {
		org, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

func (s *Store) AddOrganisation(ctx context.Context, org *domain.Organisation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.organisations.InsertOne(ctx, toOrganisationDoc(org)); err != nil {
		return fmt.Errorf("insert organisation: %w", err)
	}
	return nil
}

func (s *Store) UpdateOrganisation(ctx context.Context, org *domain.Organisation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.organisations.ReplaceOne(ctx, bson.M{"_id": org.ID.String()}, toOrganisationDoc(org))
	if err != nil {
		return fmt.Errorf("update organisation: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrganisationNotFound
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID, orgID uuid.UUID) (*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc membershipDoc
	err := s.memberships.FindOne(ctx, bson.M{"_id": domain.MembershipKey(userID, orgID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) GetOrganisationMemberships(ctx context.Context, orgID uuid.UUID) ([]*domain.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := s.memberships.Find(ctx, bson.M{"organisationId": orgID.String()})
	if err != nil {
		return nil, fmt.Errorf("find memberships: %w", err)
	}
	var docs []membershipDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode memberships: %w", err)
	}

	memberships := make([]*domain.Membership, 0, len(docs))
	for _, d := range docs {
		m, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, nil
}

func (s *Store) AddMembership(ctx context.Context, m *domain.Membership) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.memberships.InsertOne(ctx, toMembershipDoc(m)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrMembershipExists
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

func (s *Store) UpdateMembership(ctx context.Context, m *domain.Membership) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.memberships.ReplaceOne(ctx,
		bson.M{"_id": domain.MembershipKey(m.UserID, m.OrganisationID)}, toMembershipDoc(m))
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (s *Store) RemoveMembership(ctx context.Context, userID, orgID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.memberships.DeleteOne(ctx, bson.M{"_id": domain.MembershipKey(userID, orgID)})
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}
