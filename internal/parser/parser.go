// Package parser decodes the two flat-file exports the game produces for a
// guild: the "gmbr" roster dump and the "gexp" points dump. Malformed
// records are skipped, never fatal; callers get the valid records plus a
// skip count for the import summary.
package parser

import (
	"strconv"
	"strings"

	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"
)

const (
	rosterPrefix = "gmbr"
	pointsPrefix = "gexp"
)

// ParseRoster decodes a gmbr payload into members of the given family.
// Each whitespace-separated token must be a 10-field pipe-delimited record:
//
//	playerId|accountId|nickname|level|classId|...5 unused fields...
//
// The trailing fields are tolerated but ignored. Duplicate player ids keep
// the last occurrence. Records with bad arity or non-integer numeric fields
// are dropped and counted.
func ParseRoster(family, payload string) ([]domain.Member, int) {
	payload = stripPrefix(payload, rosterPrefix)

	var (
		members []domain.Member
		index   = make(map[int64]int)
		skipped int
	)

	for _, token := range strings.Fields(payload) {
		fields := strings.Split(token, "|")
		if len(fields) != constants.RosterFieldCount {
			skipped++
			continue
		}

		playerID, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			skipped++
			continue
		}
		accountID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			skipped++
			continue
		}
		level, err := strconv.Atoi(fields[3])
		if err != nil {
			skipped++
			continue
		}
		classID, err := strconv.Atoi(fields[4])
		if err != nil {
			skipped++
			continue
		}

		m := domain.Member{
			PlayerID:  playerID,
			AccountID: accountID,
			Nickname:  fields[2],
			Level:     level,
			ClassID:   classID,
			Family:    family,
		}

		if i, ok := index[playerID]; ok {
			members[i] = m
			continue
		}
		index[playerID] = len(members)
		members = append(members, m)
	}

	return members, skipped
}

// ParsePoints decodes a gexp payload. Each token is playerId|points; any
// other arity or a non-integer field drops the record.
func ParsePoints(payload string) ([]domain.PointsRecord, int) {
	payload = stripPrefix(payload, pointsPrefix)

	var (
		records []domain.PointsRecord
		skipped int
	)

	for _, token := range strings.Fields(payload) {
		fields := strings.Split(token, "|")
		if len(fields) != constants.PointsFieldCount {
			skipped++
			continue
		}

		playerID, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			skipped++
			continue
		}
		points, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			skipped++
			continue
		}

		records = append(records, domain.PointsRecord{PlayerID: playerID, Points: points})
	}

	return records, skipped
}

func stripPrefix(payload, prefix string) string {
	if strings.HasPrefix(payload, prefix) {
		return strings.TrimSpace(payload[len(prefix):])
	}
	return payload
}
