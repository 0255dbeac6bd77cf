// Package client is the jugtracker Go SDK.
//
// It wraps the server's REST API: listing jugs, recording fills and
// emptyings, downloading the ledger, and editing its newest rows.
//
//	c, err := client.New("http://localhost:5000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, err := c.Fill(ctx, "kitchen", "garage")
//	filled, err := c.ListFilled(ctx)
//
// # Editing the tail
//
// Fetch the newest rows, change them, and send them back together with the
// row count seen at fetch time. If more rows were added or removed in the
// meantime than you edited, UpdateTail returns ErrConflict and nothing is
// written:
//
//	tail, _ := c.Tail(ctx, 5)
//	tail.Lines[0].State = client.StateEmptied
//	_, err := c.UpdateTail(ctx, tail.Lines, tail.TotalRows, len(tail.Lines))
//	if errors.Is(err, client.ErrConflict) {
//	    // refetch and retry
//	}
package client
