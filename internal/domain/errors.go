package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for the given ID.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates an answered question ID is not part of the loaded quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoQuizLoaded is returned when starting a session before LoadQuiz succeeded.
	ErrNoQuizLoaded = errors.New("no quiz loaded")
	// ErrSessionCompleted is returned when mutating a session in a terminal state.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrUserNotFound indicates login against an unknown email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates a failed password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenNotFound is returned by token stores for unknown keys.
	ErrTokenNotFound = errors.New("token not found")
)
