// Package model defines the form definition consumed by the step renderer and
// the submission flow: a Form owns ordered Containers (steps), each holding
// Elements (fields). Submission carries one respondent's values and
// validation errors keyed by element id. Navigation and the *View types are
// derived on every render and never persisted; templates receive the views
// serialised through their JSON tags.
package model
