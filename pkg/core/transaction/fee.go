package transaction

// WitnessVerificationCost is a conservative fixed estimate of the gas an
// average single-signature witness costs to verify, used only as a
// sizing hint for fee estimation (the authoritative cost comes from
// actually running the witness under the Verification trigger).
const WitnessVerificationCost = 1_000_000

// CalculateNetworkFee returns the minimum NetworkFee size bytes of a
// transaction signed by numWitnesses standard single-sig witnesses must
// carry, given the policy's feePerByte and the per-witness execution
// cost in gas (execFeePerWitness, typically
// exec_fee_factor * opcode costs for PUSHDATA+CHECKSIG).
//
// Every term is an integer product, so the result is exact: no division
// and no rounding step takes place.
func CalculateNetworkFee(size int, feePerByte int64, execFeePerWitness int64, numWitnesses int) int64 {
	byteFee := int64(size) * feePerByte
	witnessFee := execFeePerWitness * int64(numWitnesses)
	total := byteFee + witnessFee
	return total
}

// RemainingNetworkFeeCoversSize reports whether networkFee is sufficient
// to cover size at feePerByte (spec §9 Open Questions item 2: the
// per-byte rate itself is an integer, so no fractional rounding arises
// here; rounding only matters when a rate is later derived by division).
func RemainingNetworkFeeCoversSize(networkFee int64, size int, feePerByte int64) bool {
	return networkFee >= int64(size)*feePerByte
}
