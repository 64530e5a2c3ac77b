package diag

import "github.com/google/uuid"

// SessionID identifies one process's worth of diagnostics and SMT query
// logs. cmd/antec's repl subcommand runs inference/monomorphisation
// repeatedly in a single process; stamping every Report with the same
// session id lets log correlation tell those runs apart from a separate
// invocation's, without threading a session value through every call site.
var SessionID = uuid.New().String()
