package ranking

import "errors"

// ErrInvalidInput matches every *InputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Messages returned to clients for rejected requests.
const (
	MsgMissingJobDescription = "Job description is empty or missing"
	MsgNoResumes             = "No resumes uploaded in 'resumes'"
	MsgNoValidResumes        = "No valid resume files (allowed: PDF, DOCX, TXT)"
)

// InputError is a client mistake detected before any scoring happens.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }
