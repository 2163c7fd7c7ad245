// Package sender uploads ServiceMessages to the DEXCell insert endpoint.
//
// A Sender is long-lived: build it once per gateway and reuse it for every
// submission. Readings are wrapped in the vendor JSON envelope
//
//	{"gatewayId": "...", "service": [{"nodeNetworkId": ..., "serviceNetworkId": ...,
//	  "value": ..., "seqNum": ..., "timeStamp": "2024-01-01T10:00:00.000 UTC"}]}
//
// and POSTed as the form field "data".
//
// # Usage
//
//	s := sender.New(sender.DefaultConfig(), sender.WithLogger(logger))
//	s.ChangeGateway("00:11:22:33:44:55")
//
//	resp, err := s.SubmitOne(ctx, msg)
//	if err != nil {
//	    return err // the envelope could not be built
//	}
//	if resp.Failed() {
//	    // the server was unreachable for every attempt
//	}
//
// # Retries
//
// Only transport failures are retried: a request that could not be sent or
// whose response could not be read. Any HTTP status, 4xx and 5xx included,
// ends the call and is returned to the caller. Retries happen at a constant
// one second interval, without jitter, and stop after ten retries (eleven
// attempts). At that point the call returns the sentinel Response
// {StatusCode: -1, Data: "FAIL"} instead of an error.
//
// This is not a recommended backoff policy. Existing server integrations rely
// on it, so it is kept as is.
package sender
