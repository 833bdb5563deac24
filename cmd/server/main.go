package main

import "timesheet/internal/app/server"

func main() {
	server.Run()
}
