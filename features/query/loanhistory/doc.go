// Package loanhistory lists issue logs newest first, open and closed ones alike.
//
// Without a student it is the "recent transactions" view of the whole library,
// with a student it is that student's borrowing history.
package loanhistory
