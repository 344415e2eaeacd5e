package frontend

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/model"
)

// AccessChecker decides whether the current visitor may see a form step.
// sub is nil before the first action.
type AccessChecker interface {
	CanAccess(ctx context.Context, form model.Form, sub *model.Submission) bool
}

// AccessFunc adapts a function to AccessChecker.
type AccessFunc func(ctx context.Context, form model.Form, sub *model.Submission) bool

// CanAccess implements AccessChecker.
func (fn AccessFunc) CanAccess(ctx context.Context, form model.Form, sub *model.Submission) bool {
	return fn(ctx, form, sub)
}

// AllowAll grants access to everyone.
var AllowAll AccessChecker = AccessFunc(func(context.Context, model.Form, *model.Submission) bool {
	return true
})
