// Package config loads the optional project file and the execution role
// reference.
//
// The project file provides defaults for the command line. Flags always
// override values from the file. A typical file looks like:
//
//  region    = "us-east-1"
//  role_file = "role_arn.txt"
//
//  runtime "calc" {
//    image       = "123456789012.dkr.ecr.us-east-1.amazonaws.com/agentcore-calc:v3"
//    auto_update = true
//  }
//
//  retention {
//    repositories = ["agentcore-calc"]
//    keep         = 9
//  }
//
//  validation {
//    qualifier = "DEFAULT"
//    timeout   = "60s"
//  }
package config
