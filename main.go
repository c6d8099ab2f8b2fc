package main

import "github.com/mir-ashiq/Travelers-sub001/cmd"

func main() {
	cmd.Execute()
}
