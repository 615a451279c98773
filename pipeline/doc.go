// Package pipeline compiles a merged middleware configuration into a plan
// and installs the plan into a host.
//
// The configuration maps phases to middleware references to configs:
//
//	{
//	  "initial": {
//	    "witty#poweredBy": {"params": "Witty"}
//	  },
//	  "files": {
//	    "witty#static": [
//	      {"params": "$!./public"},
//	      {"params": "$!../shared", "paths": ["/shared"]}
//	    ]
//	  }
//	}
//
// Build resolves every reference and produces one Instruction per config;
// Install loads the factory behind each instruction and hands it to the
// host. Load runs the whole sequence from a config directory.
package pipeline
