package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// newQuestionID returns an id that is collision-resistant within one
// authoring session. Ids are replaced by backend-assigned ones on persist,
// so global uniqueness is not required.
func newQuestionID() string {
	return fmt.Sprintf("q_%d_%s", time.Now().UnixMilli(), shortID(8))
}
