// Package audio plays sound URLs through an installed command line player.
package audio
