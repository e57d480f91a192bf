package sqlxrepos

import "github.com/google/uuid"

// Identifier columns are uuids, and Postgres raises a syntax error when a
// malformed literal reaches a comparison. URL and query parameters land here
// unparsed, so repositories screen them and treat malformed values as no match.

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func filterUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}
