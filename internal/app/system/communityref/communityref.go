// Package communityref provides a tagged community identifier.
//
// Callers may address a community three ways: by Mongo ObjectID hex, by the
// external provider's organization ID ("org_..."), or by the local public
// token ("loc_..."). Parse resolves the form once at the handler boundary so
// nothing downstream re-sniffs string prefixes.
package communityref

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind says which identifier space a Ref lives in.
type Kind int

const (
	// Local is a Mongo ObjectID.
	Local Kind = iota
	// External is the identity provider's organization ID.
	External
	// Public is the application-level public token of a locally created
	// community.
	Public
)

const (
	// ExternalPrefix marks identity-provider organization IDs.
	ExternalPrefix = "org_"
	// PublicPrefix marks locally minted public tokens.
	PublicPrefix = "loc_"
)

// Ref is a community identifier with known provenance.
type Ref struct {
	Kind     Kind
	ObjectID primitive.ObjectID // set when Kind == Local
	Value    string             // set when Kind is External or Public
}

// Parse classifies a raw identifier. Unrecognized strings are treated as
// public IDs so lookups fail with "not found" rather than a parse error.
func Parse(raw string) Ref {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, ExternalPrefix):
		return Ref{Kind: External, Value: raw}
	case strings.HasPrefix(raw, PublicPrefix):
		return Ref{Kind: Public, Value: raw}
	default:
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			return Ref{Kind: Local, ObjectID: oid}
		}
		return Ref{Kind: Public, Value: raw}
	}
}

// FromObjectID wraps an already-resolved ObjectID.
func FromObjectID(id primitive.ObjectID) Ref {
	return Ref{Kind: Local, ObjectID: id}
}

// FromExternalID wraps a provider organization ID.
func FromExternalID(id string) Ref {
	return Ref{Kind: External, Value: id}
}

// Filter returns the Mongo filter that resolves the Ref in the communities
// collection.
func (r Ref) Filter() bson.M {
	switch r.Kind {
	case Local:
		return bson.M{"_id": r.ObjectID}
	case External:
		return bson.M{"external_id": r.Value}
	default:
		return bson.M{"public_id": r.Value}
	}
}

// String returns the raw identifier form.
func (r Ref) String() string {
	if r.Kind == Local {
		return r.ObjectID.Hex()
	}
	return r.Value
}
