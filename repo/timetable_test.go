package repo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tartu-transit/buscore/cache"
	"github.com/tartu-transit/buscore/client"
	"github.com/tartu-transit/buscore/kvstore"
)

const timetablePayload = `{"data":{"stop":{
	"gtfsId":"Tartu:7820304-1","name":"Kesklinn","lat":58.378,"lon":26.729,
	"stoptimesWithoutPatterns":[
		{"scheduledArrival":50000,"scheduledDeparture":50030,"realtime":false,"stopPosition":2,
		 "headsign":"Annelinn","trip":{"route":{"shortName":"3","longName":"","gtfsId":"Tartu:3"}}},
		{"scheduledArrival":30000,"scheduledDeparture":30030,"realtime":false,"stopPosition":2,
		 "headsign":"Annelinn","trip":{"route":{"shortName":"3","longName":"","gtfsId":"Tartu:3"}}},
		{"scheduledArrival":40000,"scheduledDeparture":40030,"realtime":false,"stopPosition":5,
		 "headsign":"Ringtee","trip":{"route":{"shortName":"22","longName":"","gtfsId":"Tartu:22"}}},
		{"scheduledArrival":45000,"scheduledDeparture":45030,"realtime":false,"stopPosition":1,
		 "headsign":"","trip":null}
	]}}}`

func TestDailyTimetable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timetablePayload))
	}))
	defer srv.Close()

	r := New(client.New(srv.URL, "", time.Second), cache.New(kvstore.NewMemStore(), nil), nil, "Tartu", nil)
	departures, err := r.DailyTimetable(context.Background(), "Tartu:7820304-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(departures) != 4 {
		t.Fatalf("expected 4 departures, got %d", len(departures))
	}
	for i := 1; i < len(departures); i++ {
		if departures[i].ScheduledDeparture < departures[i-1].ScheduledDeparture {
			t.Fatal("departures must be sorted by scheduled departure")
		}
	}

	grouped := TimetableByRoute(departures)
	if len(grouped["3"]) != 2 {
		t.Errorf("route 3 should have 2 departures, got %d", len(grouped["3"]))
	}
	if len(grouped["22"]) != 1 {
		t.Errorf("route 22 should have 1 departure, got %d", len(grouped["22"]))
	}
	if len(grouped[""]) != 1 {
		t.Errorf("tripless departure should group under empty name, got %d", len(grouped[""]))
	}
}

func TestDailyTimetableUnknownStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"stop":null}}`))
	}))
	defer srv.Close()

	r := New(client.New(srv.URL, "", time.Second), cache.New(kvstore.NewMemStore(), nil), nil, "Tartu", nil)
	departures, err := r.DailyTimetable(context.Background(), "Tartu:nope")
	if err != nil {
		t.Fatal(err)
	}
	if departures != nil {
		t.Errorf("unknown stop should yield nil, got %+v", departures)
	}
}
