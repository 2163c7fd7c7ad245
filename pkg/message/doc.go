// Package message defines the reading that dexcell uploads: a ServiceMessage
// ties one value of one physical quantity (the service) to a node, a point in
// time and a per-node sequence number.
//
// Service codes are the vendor's wire contract and must never be renumbered.
package message
