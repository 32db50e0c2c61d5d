// Package policy decides whether a caller may perform an action on a resource.
//
// Decide is a pure function over snapshots supplied by the caller. It never
// touches the store; the service layer loads the snapshot, asks for a
// decision and only then mutates.
package policy

import (
	"errors"
	"slices"

	"github.com/inkwell/inkwell/internal/model"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
	ErrNotFound        = errors.New("not found")
)

// Action is an operation requested on a resource.
type Action int

const (
	Read Action = iota
	Create
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonNotFound        Reason = "not_found"
)

// Decision is the result of Decide.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r Reason) Decision { return Decision{Reason: r} }

// Err returns nil for an Allow and the matching sentinel for a Deny.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return ErrUnauthenticated
	case ReasonNotFound:
		return ErrNotFound
	default:
		return ErrForbidden
	}
}

// Resource is a snapshot of the entity an action targets.
type Resource interface {
	kind() kind
}

type kind int

const (
	kindPost kind = iota
	kindCategory
	kindComment
	kindUser
)

// Post is a post snapshot. For Create, AuthorID is empty and Category is
// the target category, nil when it does not exist.
type Post struct {
	AuthorID string
	Category *Category
}

// Category is a category snapshot.
type Category struct {
	Members []string
}

// Comment is a comment snapshot. For Create, PostExists reports whether
// the target post slug resolved.
type Comment struct {
	PostExists bool
}

// User is a user account snapshot.
type User struct {
	ID string
}

func (Post) kind() kind     { return kindPost }
func (Category) kind() kind { return kindCategory }
func (Comment) kind() kind  { return kindComment }
func (User) kind() kind     { return kindUser }

type ruleKey struct {
	kind   kind
	action Action
}

type rule func(caller model.Caller, res Resource) Decision

var rules = map[ruleKey]rule{
	{kindPost, Read}:   always,
	{kindPost, Create}: postCreate,
	{kindPost, Update}: postAuthor,
	{kindPost, Delete}: postAuthor,

	{kindCategory, Read}:   always,
	{kindCategory, Create}: authenticated,
	// Membership is not checked for category edits; see DESIGN.md.
	{kindCategory, Update}: authenticated,
	{kindCategory, Delete}: authenticated,

	{kindComment, Read}:   always,
	{kindComment, Create}: commentCreate,
	// Comment edits carry no ownership check; see DESIGN.md.
	{kindComment, Update}: always,
	{kindComment, Delete}: always,

	{kindUser, Read}:   always,
	{kindUser, Create}: always,
	{kindUser, Update}: self,
	{kindUser, Delete}: self,
}

// Decide returns whether caller may perform action on res.
// Unknown combinations are denied as Forbidden.
func Decide(caller model.Caller, action Action, res Resource) Decision {
	res, ok := deref(res)
	if !ok {
		return deny(ReasonForbidden)
	}
	r, ok := rules[ruleKey{res.kind(), action}]
	if !ok {
		return deny(ReasonForbidden)
	}
	return r(caller, res)
}

// deref turns pointer resources into their value form so rules can assert
// on the value types. A nil resource or nil pointer reports false.
func deref(res Resource) (Resource, bool) {
	switch v := res.(type) {
	case nil:
		return nil, false
	case *Post:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *Category:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *Comment:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *User:
		if v == nil {
			return nil, false
		}
		return *v, true
	}
	return res, true
}

// Check is Decide followed by Decision.Err.
func Check(caller model.Caller, action Action, res Resource) error {
	return Decide(caller, action, res).Err()
}

func always(model.Caller, Resource) Decision {
	return allow()
}

func authenticated(caller model.Caller, _ Resource) Decision {
	if !caller.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}
	return allow()
}

func postCreate(caller model.Caller, res Resource) Decision {
	if !caller.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}
	p, ok := res.(Post)
	if !ok {
		return deny(ReasonForbidden)
	}
	if p.Category == nil {
		return deny(ReasonNotFound)
	}
	if !slices.Contains(p.Category.Members, caller.UserID) {
		return deny(ReasonForbidden)
	}
	return allow()
}

func postAuthor(caller model.Caller, res Resource) Decision {
	if !caller.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}
	p, ok := res.(Post)
	if !ok || !caller.Is(p.AuthorID) {
		return deny(ReasonForbidden)
	}
	return allow()
}

func commentCreate(_ model.Caller, res Resource) Decision {
	c, ok := res.(Comment)
	if !ok {
		return deny(ReasonForbidden)
	}
	if !c.PostExists {
		return deny(ReasonNotFound)
	}
	return allow()
}

func self(caller model.Caller, res Resource) Decision {
	if !caller.IsAuthenticated() {
		return deny(ReasonUnauthenticated)
	}
	u, ok := res.(User)
	if !ok || !caller.Is(u.ID) {
		return deny(ReasonForbidden)
	}
	return allow()
}
