package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

const entrySchemaVersion = 1

// Entry is the record stored in the cache for a live token. The token's
// cryptographic content is not duplicated here; the entry's existence is
// the revocation signal, the subject id is what rotation needs.
type Entry struct {
	SubjectID int64 `json:"subjectId"`
}

type entryEnvelope struct {
	Version   int   `json:"v"`
	SubjectID int64 `json:"subjectId"`
}

// EncodeEntry serializes an Entry for storage. The format is a first-class
// contract: DecodeEntry must accept exactly what EncodeEntry produces.
func EncodeEntry(e Entry) ([]byte, error) {
	if e.SubjectID <= 0 {
		return nil, errors.New("session: entry subject id must be positive")
	}
	return json.Marshal(entryEnvelope{Version: entrySchemaVersion, SubjectID: e.SubjectID})
}

// DecodeEntry parses a stored entry, rejecting unknown schema versions and
// records without a subject.
func DecodeEntry(data []byte) (Entry, error) {
	var env entryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Entry{}, fmt.Errorf("session: decode entry: %w", err)
	}
	if env.Version != entrySchemaVersion {
		return Entry{}, fmt.Errorf("session: unsupported entry version %d", env.Version)
	}
	if env.SubjectID <= 0 {
		return Entry{}, errors.New("session: entry missing subject id")
	}
	return Entry{SubjectID: env.SubjectID}, nil
}
