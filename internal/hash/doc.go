// Package hash computes the CRC32-Castagnoli checksums that guard persisted
// bank frames and S3 uploads.
//
//	frame = hash.AppendSum(frame, payload)
//	ok := hash.Verify(payload, sum)
package hash
