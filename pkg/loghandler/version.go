package loghandler

// Version of the loghandler package, sent in the User-Agent header.
const Version = "1.0.0"

// UserAgent identifies requests made by this package.
const UserAgent = "dexcell-loghandler/" + Version
