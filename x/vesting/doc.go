/*
Package vesting implements token vesting pools with per beneficiary,
time based vesting schedules.

An organization locks funds for its members by creating a vesting pool
and funding the pool treasury account. The treasury is a regular cash
wallet with an address derived from the organization name, so no private
key can ever sign for it. The pool owner registers a vesting schedule
for each beneficiary. A schedule releases its total grant linearly
between a start and an end time, with nothing claimable before the
cliff time.

A beneficiary claims whatever portion of the grant has vested and was
not yet withdrawn. Each claim transfers the difference from the treasury
to the beneficiary wallet and advances the withdrawal counter. Claims
are settled atomically within a single transaction, so a failed claim
never moves funds and a repeated claim at the same block time fails
without transferring anything twice.
*/
package vesting
