package services

import "time"

const dateLayout = "2006-01-02"

type DateChunk struct {
	From string
	To   string
}

// ChunkDateRange splits [start, end] into contiguous inclusive sub-ranges of
// at most maxDays calendar days, oldest first. The upstream API rejects
// ranges longer than 30 days, so the engine always chunks before fetching.
// Unparseable bounds yield an empty slice: nothing to do, not an error.
func ChunkDateRange(start, end string, maxDays int) []DateChunk {
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return nil
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil
	}
	if maxDays < 1 || to.Before(from) {
		return nil
	}

	var chunks []DateChunk
	for !from.After(to) {
		chunkEnd := from.AddDate(0, 0, maxDays-1)
		if chunkEnd.After(to) {
			chunkEnd = to
		}
		chunks = append(chunks, DateChunk{
			From: from.Format(dateLayout),
			To:   chunkEnd.Format(dateLayout),
		})
		from = chunkEnd.AddDate(0, 0, 1)
	}
	return chunks
}
