package internal

// Version is the cardsheet release
const Version = "0.3.0"
