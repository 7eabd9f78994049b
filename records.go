package tributary

import (
	"time"

	"github.com/tributary-io/tributary/internal/pkg/engine"
)

// Raw catalog records are JSON objects with the keys below. Identifier
// fields may be null or absent; such rows are dropped by the transforms,
// never errored.
const (
	catalogItemID     = "item_id"
	catalogTitle      = "title"
	catalogProducerID = "producer_id"
	catalogYear       = "year"
	catalogDuration   = "duration"
	catalogProducer   = "producer_name"
	catalogLocation   = "producer_location"
	catalogLatitude   = "producer_latitude"
	catalogLongitude  = "producer_longitude"
)

// Raw event records use the field names fixed by the event producer.
const (
	eventPage      = "page"
	eventTimestamp = "ts"
	eventUserID    = "userId"
	eventFirstName = "firstName"
	eventLastName  = "lastName"
	eventGender    = "gender"
	eventLevel     = "level"
	eventSession   = "sessionId"
	eventLocation  = "location"
	eventUserAgent = "userAgent"
	eventSong      = "song"
	eventArtist    = "artist"
)

// playMarker is the event-type discriminator for play events. Events
// with any other page value never reach a derived relation.
const playMarker = "NextSong"

var itemsSchema = engine.Schema{
	Name: "items",
	Fields: []engine.Field{
		{Name: "item_id", Type: engine.String},
		{Name: "title", Type: engine.String},
		{Name: "producer_id", Type: engine.String},
		{Name: "year", Type: engine.Int32},
		{Name: "duration", Type: engine.Double},
	},
}

var producersSchema = engine.Schema{
	Name: "producers",
	Fields: []engine.Field{
		{Name: "producer_id", Type: engine.String},
		{Name: "name", Type: engine.String},
		{Name: "location", Type: engine.String},
		{Name: "latitude", Type: engine.Double},
		{Name: "longitude", Type: engine.Double},
	},
}

var actorsSchema = engine.Schema{
	Name: "actors",
	Fields: []engine.Field{
		{Name: "actor_id", Type: engine.String},
		{Name: "first_name", Type: engine.String},
		{Name: "last_name", Type: engine.String},
		{Name: "gender", Type: engine.String},
		{Name: "level", Type: engine.String},
	},
}

var timeSchema = engine.Schema{
	Name: "time",
	Fields: []engine.Field{
		{Name: "start_time", Type: engine.Timestamp},
		{Name: "hour", Type: engine.Int32},
		{Name: "day", Type: engine.Int32},
		{Name: "week", Type: engine.Int32},
		{Name: "month", Type: engine.Int32},
		{Name: "year", Type: engine.Int32},
		{Name: "weekday", Type: engine.Int32},
	},
}

var playFactsSchema = engine.Schema{
	Name: "play_facts",
	Fields: []engine.Field{
		{Name: "play_id", Type: engine.Int64},
		{Name: "start_time", Type: engine.Timestamp},
		{Name: "month", Type: engine.Int32},
		{Name: "year", Type: engine.Int32},
		{Name: "actor_id", Type: engine.String},
		{Name: "level", Type: engine.String},
		{Name: "item_id", Type: engine.String},
		{Name: "producer_id", Type: engine.String},
		{Name: "session_id", Type: engine.Int64},
		{Name: "location", Type: engine.String},
		{Name: "user_agent", Type: engine.String},
	},
}

// epochMillis reads a raw timestamp value as epoch milliseconds.
func epochMillis(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

// timeParts decomposes an epoch-millisecond timestamp into the time
// dimension columns. Division by 1000 truncates sub-second precision;
// the calendar arithmetic is done in UTC so the decomposition is
// deterministic across hosts. The week is the ISO week number and the
// weekday is 1..7 with Sunday = 1.
func timeParts(tsMillis int64) (startTime int64, hour, day, week, month, year, weekday int64) {
	seconds := tsMillis / 1000
	t := time.Unix(seconds, 0).UTC()

	_, isoWeek := t.ISOWeek()
	return seconds * 1000,
		int64(t.Hour()),
		int64(t.Day()),
		int64(isoWeek),
		int64(t.Month()),
		int64(t.Year()),
		int64(t.Weekday()) + 1
}
