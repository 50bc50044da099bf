package services

import "time"

// timeNow is swapped in tests that exercise expiry behavior.
var timeNow = time.Now
