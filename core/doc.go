// Copyright 2015 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package core holds the concepts and pure logic of the reaktor client:
the result values returned by calls, the attribute patch table and the
history audit log.

When adding to core:

  - it's fine to import from any subpackage of "github.com/txtr/holon/core"
  - but never import from any other subpackage of "github.com/txtr/holon"
  - nothing in here talks to the network
*/
package core
