package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// membersFile is the envelope form of a JSON member batch.
type membersFile struct {
	Members []MemberRecord `json:"members"`
}

// ParseMembersJSON accepts either a bare array of members or an object with
// a "members" array.
func ParseMembersJSON(data []byte) ([]MemberRecord, error) {
	trimmed := bytes.TrimSpace(data)
	var records []MemberRecord
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("unmarshal members: %w", err)
		}
	} else {
		var f membersFile
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("unmarshal members: %w", err)
		}
		records = f.Members
	}
	for i := range records {
		records[i].Line = i + 1
	}
	return records, nil
}
