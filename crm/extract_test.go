package crm_test

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/talentbridge/crmsync/core/schema"
	"github.com/talentbridge/crmsync/crm"
)

func TestPageIter_WalksAllPages(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	pages := map[int]string{
		1: listBody(true, "Initech", "Globex"),
		2: listBody(true, "Hooli"),
		3: listBody(false, "Umbrella"),
	}
	var requested []int
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		requested = append(requested, page)
		fmt.Fprint(w, pages[page])
	})

	iter := crm.NewExtractor(client, schema.EntityAccount).Pages()

	var total int
	for {
		records, err := iter.Next(ctx)
		c.Assert(err, qt.IsNil)
		if records == nil {
			break
		}
		total += len(records)
	}

	c.Assert(total, qt.Equals, 4)
	c.Assert(requested, qt.DeepEquals, []int{1, 2, 3})

	// An exhausted iterator stays exhausted.
	records, err := iter.Next(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.IsNil)
}

func TestPageIter_EmptyModule(t *testing.T) {
	c := qt.New(t)

	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	iter := crm.NewExtractor(client, schema.EntityAccount).Pages()

	records, err := iter.Next(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.IsNil)
}

func TestPageIter_StopsOnEmptyPageDespiteMoreFlag(t *testing.T) {
	c := qt.New(t)

	// A CRM bug can report more_records with an empty data array; the iterator
	// must still terminate.
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[],"info":{"more_records":true}}`)
	})

	iter := crm.NewExtractor(client, schema.EntityAccount).Pages()

	records, err := iter.Next(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.IsNil)

	records, err = iter.Next(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.IsNil)
}

func TestPageIter_ErrorEndsIteration(t *testing.T) {
	c := qt.New(t)

	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	iter := crm.NewExtractor(client, schema.EntityAccount).Pages()

	_, err := iter.Next(context.Background())
	c.Assert(err, qt.IsNotNil)

	records, err := iter.Next(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(records, qt.IsNil)
}

func TestExtractor_RequestsDeclaredFields(t *testing.T) {
	c := qt.New(t)

	var fields string
	client := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fields = r.URL.Query().Get("fields")
		fmt.Fprint(w, listBody(false, "Initech"))
	})

	iter := crm.NewExtractor(client, schema.EntityContact).Pages()
	_, err := iter.Next(context.Background())

	c.Assert(err, qt.IsNil)
	c.Assert(fields, qt.Contains, "First_Name")
	c.Assert(fields, qt.Contains, "Account_Name")
	c.Assert(fields, qt.Contains, "Modified_Time")
}
