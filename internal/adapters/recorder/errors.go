package recorder

import "errors"

// ErrRecord wraps every failed history or capture write.
var ErrRecord = errors.New("record failed")
