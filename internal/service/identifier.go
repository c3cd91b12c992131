package service

import (
	"context"
	"regexp"
	"strings"

	"scannimart/internal/model"
	"scannimart/internal/repository"

	"github.com/google/uuid"
)

// IdentifierKind says which lookup key a scanned or typed code is.
type IdentifierKind int

const (
	IdentifierCanonical IdentifierKind = iota + 1
	IdentifierShortCode
	IdentifierOpaqueToken
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierCanonical:
		return "canonical"
	case IdentifierShortCode:
		return "short_code"
	case IdentifierOpaqueToken:
		return "opaque_token"
	}
	return "unknown"
}

// Identifier is the classified form of an exit pass code. Exactly one of
// the three keys is meaningful, selected by Kind.
type Identifier struct {
	Kind      IdentifierKind
	ID        uuid.UUID // IdentifierCanonical
	ShortCode string    // IdentifierShortCode, uppercased
	Token     string    // IdentifierOpaqueToken
}

var (
	canonicalExpr = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	shortCodeExpr = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)
)

// ClassifyIdentifier applies the resolution order: canonical id, then
// 6-character short code, then opaque token.
func ClassifyIdentifier(input string) Identifier {
	input = strings.TrimSpace(input)
	if canonicalExpr.MatchString(input) {
		if id, err := uuid.Parse(input); err == nil {
			return Identifier{Kind: IdentifierCanonical, ID: id}
		}
	}
	if shortCodeExpr.MatchString(input) {
		return Identifier{Kind: IdentifierShortCode, ShortCode: strings.ToUpper(input)}
	}
	return Identifier{Kind: IdentifierOpaqueToken, Token: input}
}

type IdentifierResolver interface {
	Resolve(ctx context.Context, input string) (*model.Order, error)
}

type identifierResolver struct {
	orderRepo repository.OrderRepository
}

func NewIdentifierResolver(orderRepo repository.OrderRepository) IdentifierResolver {
	return &identifierResolver{orderRepo: orderRepo}
}

// Resolve is read-only. It returns ErrOrderNotFound when the selected key
// matches nothing and a *StoreError when the store itself fails.
func (r *identifierResolver) Resolve(ctx context.Context, input string) (*model.Order, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrOrderNotFound
	}

	ident := ClassifyIdentifier(input)

	var (
		order *model.Order
		err   error
	)
	switch ident.Kind {
	case IdentifierCanonical:
		order, err = r.orderRepo.FindByID(ctx, ident.ID)
	case IdentifierShortCode:
		order, err = r.orderRepo.FindByReadableID(ctx, ident.ShortCode)
	default:
		order, err = r.orderRepo.FindByQRCode(ctx, ident.Token)
	}

	if repository.IsNotFound(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, storeErr("resolve "+ident.Kind.String(), err)
	}
	return order, nil
}
