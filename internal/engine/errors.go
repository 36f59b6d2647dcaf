package engine

import "errors"

var ErrNotYourTurn = errors.New("not your turn")
var ErrItemUnavailable = errors.New("item unavailable")
var ErrInvalidPhase = errors.New("invalid phase for action")
var ErrForbidden = errors.New("forbidden")
var ErrRoundAlreadyResolved = errors.New("round already resolved")
var ErrChoiceTaken = errors.New("choice already taken")
var ErrDraftPaused = errors.New("draft paused")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrInvariantViolated = errors.New("draft accounting invariant violated")
