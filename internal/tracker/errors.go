package tracker

import "errors"

var (
	ErrClosed               = errors.New("session closed")
	ErrGenerationInProgress = errors.New("generation in progress")
	ErrMergeInProgress      = errors.New("merge in progress")
	ErrNoProduct            = errors.New("no product selected")
	ErrNoGeneration         = errors.New("no generation to execute, merge first")
	ErrNoPrompts            = errors.New("no merged prompts")
	ErrSameCollection       = errors.New("collection already used for the previous generation")
	ErrSuperseded           = errors.New("superseded by a newer attempt")
	ErrNothingToRegenerate  = errors.New("no finished generation to regenerate from")
)
