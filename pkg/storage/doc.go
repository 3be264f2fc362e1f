// Package storage provides persistent storage for the team slot bot.
// It uses BadgerDB as the embedded database and implements the slot store consumed by the scheduling services.
package storage
